// Package dwm implements the UART protocols of the Qorvo/Decawave
// DWM1001 module: the binary TLV API and the interactive shell.
//
// In API mode every exchange is a sequence of TLV frames, one byte of
// type and one byte of length followed by the value. A position request
// (dwm_loc_get) is answered with a ret_val frame reporting the request
// status and a pos_xyz frame carrying the coordinates in millimeters.
//
// In shell mode the module talks line oriented text. The lep command
// prints the current position as a "POS,x,y,z,quality" line with
// coordinates in meters.
package dwm

// TLV frame types seen in a dwm_loc_get exchange.
const (
	TypeRetVal    = 0x40
	TypePosXYZ    = 0x41
	TypeDistances = 0x48
)

// LocGetRequest is the dwm_loc_get API request.
var LocGetRequest = []byte{0x0C, 0x00}

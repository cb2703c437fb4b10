package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/libs/ports"
)

/*
DWM1001 com port finder.

Util lists the serial com ports of connected DWM1001-DEV boards. The
board enumerates as a SEGGER J-Link OB USB CDC port, so the default
identifiers pick it out among other serial adapters.

Usage:
  -vid string
    	USB vendor identifier to match (default "1366")
  -pid string
    	USB product identifier to match (default "0105")
  -all
    	List every serial port instead of filtering
  -first
    	Print only the first matching port
  -v
    	Print USB details next to each port name

Example

```
./portfinder -first
/dev/ttyACM0
```
*/

func main() {
	vid := ""
	pid := ""
	all := false
	first := false
	verbose := false

	flag.StringVar(&vid, "vid", ports.DefaultVID, "USB vendor identifier to match")
	flag.StringVar(&pid, "pid", ports.DefaultPID, "USB product identifier to match")
	flag.BoolVar(&all, "all", false, "List every serial port instead of filtering")
	flag.BoolVar(&first, "first", false, "Print only the first matching port")
	flag.BoolVar(&verbose, "v", false, "Print USB details next to each port name")

	flag.Parse()

	found, err := ports.List()
	if err != nil {
		fmt.Println("Failed to enumerate serial ports: ", err)
		os.Exit(1)
	}

	if !all {
		found = ports.Filter(found, vid, pid)
	}

	if len(found) == 0 {
		fmt.Println("No matching serial ports found")
		os.Exit(1)
	}

	if first {
		found = found[:1]
	}

	for _, port := range found {
		if verbose {
			fmt.Printf("%s\tVID=%s PID=%s serial=%s product=%s\n",
				port.Name, port.VID, port.PID, port.SerialNumber, port.Product)
		} else {
			fmt.Println(port.Name)
		}
	}
}

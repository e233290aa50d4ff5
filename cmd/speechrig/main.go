// SPDX-License-Identifier: EPL-2.0

// Command speechrig turns recorded speech into facial rig animation.
//
// Usage:
//
//	speechrig [flags] <command> [args]
//
// Commands:
//
//	animate    - Animate an audio file and write the asset (json, msgpack)
//	normalize  - Write the 16 kHz mono signal the audio encoder sees
//	controls   - List the rig controls and their GUI -> raw mapping
//	serve      - Serve animations over HTTP
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/ik5/speechrig/cmd/speechrig/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

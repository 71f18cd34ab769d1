// SPDX-License-Identifier: MPL-2.0

package main

import cmd "ucdist/cmd/ucdist"

func main() {
	cmd.Execute()
}

// SPDX-License-Identifier: MPL-2.0

package main

import cmd "previewd/cmd/previewd"

func main() {
	cmd.Execute()
}

// SPDX-License-Identifier: MPL-2.0

package main

import cmd "condalint/cmd/condalint"

func main() {
	cmd.Execute()
}

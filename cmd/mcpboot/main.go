// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/mcpboot/mcpboot/cmd/mcpboot/cmd"

func main() {
	cmd.Execute()
}

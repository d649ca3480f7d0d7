package commands

import "github.com/marmos91/guardfs/internal/cli/completion"

var completionCmd = completion.NewCommand("guardfs")

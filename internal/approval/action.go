package approval

import "github.com/kandev/orchestrator/internal/orchestype"

// Action is the approval-sink-facing classification of what a command
// would do, derived from a Command's CommandType.
type Action string

const (
	ActionShell           Action = "shell"
	ActionFileWrite       Action = "file_write"
	ActionNetwork         Action = "network"
	ActionGitPush         Action = "git_push"
	ActionPackageInstall  Action = "package_install"
	ActionContainer       Action = "container"
	ActionDatabaseWrite   Action = "database_write"
	ActionAdmin           Action = "admin"
)

var actionByCommandType = map[orchestype.CommandType]Action{
	orchestype.CommandTypeShell:     ActionShell,
	orchestype.CommandTypeFileOp:    ActionFileWrite,
	orchestype.CommandTypeNetwork:   ActionNetwork,
	orchestype.CommandTypeGit:       ActionGitPush,
	orchestype.CommandTypePackage:   ActionPackageInstall,
	orchestype.CommandTypeContainer: ActionContainer,
	orchestype.CommandTypeDatabase:  ActionDatabaseWrite,
	orchestype.CommandTypeAdmin:     ActionAdmin,
}

// ActionForCommandType resolves the default action for a command type.
// This collapses read/write distinctions within FileOp and Git —
// specialized submitters may instead pass an explicit Action to
// Manager.SubmitRequest.
func ActionForCommandType(t orchestype.CommandType) Action {
	if a, ok := actionByCommandType[t]; ok {
		return a
	}
	return ActionShell
}

package orchestype

// CommandType mirrors Capability but names the action class a command
// belongs to, used to map commands to approval Actions (see the approval
// package's action-mapping table).
type CommandType string

const (
	CommandTypeNoOp      CommandType = "noop"
	CommandTypeShell     CommandType = "shell"
	CommandTypeFileOp    CommandType = "file_op"
	CommandTypeNetwork   CommandType = "network"
	CommandTypeGit       CommandType = "git"
	CommandTypePackage   CommandType = "package"
	CommandTypeContainer CommandType = "container"
	CommandTypeDatabase  CommandType = "database"
	CommandTypeAdmin     CommandType = "admin"
)

// RequiresCapabilities reports whether commands of this type must declare a
// non-empty required-capabilities set. Only no-op commands may have an
// empty set.
func (t CommandType) RequiresCapabilities() bool {
	return t != CommandTypeNoOp
}

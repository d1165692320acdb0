package rbac

// Default role policy. Role names mirror the users table.
var RolePermissions = map[string][]string{
	"student": {
		"exam:view",
		"attempt:start",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"result:view-own",
	},
	"teacher": {
		"exam:create",
		"exam:view",
		"exam:view-keys",
		"exam:publish",
		"attempt:view-all",
		"result:view-all",
		"result:enter",
	},
	"admin": {
		"*", // everything
	},
}

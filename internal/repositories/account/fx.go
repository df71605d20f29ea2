package account

import "go.uber.org/fx"

var Module = fx.Module("account_directory",
	fx.Provide(
		NewSQLDirectory,
		func(d *SQLDirectory) Directory { return d },
	),
)

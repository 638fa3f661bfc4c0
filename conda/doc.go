// Package conda is a typed facade over a [condarun.Transport].
//
// A [Client] wraps any transport and exposes the package manager's
// operations: [Client.Info], [Client.Search], [Client.Clean], environments
// ([Env]), a package metadata cache ([Packages]) and the configuration
// store ([Config]).
//
// Quick operations block and return decoded values. Operations that may run
// for minutes (install, update, remove, create, clone) return a
// [condarun.Future]. An OnProgress callback in the options receives every
// progress payload of the operation:
//
//	env, _ := client.Root(ctx)
//	fut, err := env.Install(ctx, conda.InstallOptions{
//		Packages:   []string{"numpy"},
//		OnProgress: func(p json.RawMessage) { log.Println(string(p)) },
//	})
//	if err != nil { return err }
//	result, err := fut.Wait(ctx)
//
// Option structs are checked before dispatch; violations surface as
// ValidationFailure errors and nothing is sent.
package conda

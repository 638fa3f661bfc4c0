// Package local runs commands by spawning the package manager executable.
//
// [Encode] turns a [condarun.Command] into the executable's argument vector:
// camelCase option names become --dashed-flags, and --json is always last.
// [Transport] spawns the executable with that vector and decodes standard
// output, which is read as UTF-8.
//
// Without progress, the whole output is one JSON document. When the command
// asks for progress (quiet=false), the output is decoded with package frame
// and progress documents are delivered through the returned [condarun.Future]
// as they arrive.
//
// The exit status is never inspected: the tool reports failures as JSON on
// standard output, and completion is signaled by standard output closing.
// A spawned process is never killed by this package.
package local

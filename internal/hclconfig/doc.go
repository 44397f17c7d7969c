// Package hclconfig loads minipack project files written in HCL.
//
// A project file declares one or more bundle blocks:
//
//	bundle "app" {
//	  entry       = "./src/entry.js"
//	  output      = "./dist/app.js"
//	  global_name = "App"
//	  define      = { "process.env.NODE_ENV" = "\"${env.NODE_ENV}\"" }
//	}
//
// Expressions are evaluated with a single variable, env, holding the process
// environment. Relative paths are resolved against the directory of the file
// that declares them.
package hclconfig

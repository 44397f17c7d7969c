// Package bundle serialises a module graph into one self-executing script.
//
// The script is a single immediately-invoked function whose argument is the
// module table:
//
//	(function (modules) { ...runtime loader...; require(0); })({
//	0: [function (require, module, exports) { ...code... }, {"./a.js":1}],
//	1: [function (require, module, exports) { ...code... }, {}],
//	});
//
// Each entry pairs the module body, wrapped so that require, module and
// exports are parameters, with the table that turns the specifiers written
// in that module into ids. The runtime loader embedded in front of the table
// implements require(id) and starts the program by requiring id 0.
package bundle

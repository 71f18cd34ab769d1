// SPDX-License-Identifier: MPL-2.0

package recipe

// Scaffold returns starter distfile.cue content for 'ucdist init'.
// Known templates: "default" (full UCX recipe) and "minimal".
// Unknown template names fall back to "default".
func Scaffold(template string) string {
	switch template {
	case "minimal":
		return minimalDistfile
	default:
		return defaultDistfile
	}
}

const minimalDistfile = `// Distribution recipe for ucdist. See 'ucdist build --help'.

product: {
	upstream_name:   "ucx"
	dist_name:       "migrator"
	upstream_import: "databricks.labs.ucx"
	dist_import:     "databricks.labs.migrator"
}

source: "./src"
`

const defaultDistfile = `// Distribution recipe for ucdist.
//
// 'ucdist build' stages the toolkit source from 'source', rewrites every
// occurrence of the upstream namespace to the distribution namespace, adds
// the import shim and installer, and assembles the output archive.

product: {
	upstream_name:   "ucx"
	dist_name:       "migrator"
	upstream_import: "databricks.labs.ucx"
	dist_import:     "databricks.labs.migrator"
}

// Toolkit checkout, relative to this file. 'ucdist fetch' populates it.
source: "./src"

// Default output is "<dist_name>_dist.zip" next to this file.
output: ""

// Staging skips test code and caches regardless; add extra patterns here.
excludes: [
	"docs/**",
]

// Substitutions applied after the derived namespace rules.
extra_rules: [
	{old: "product=\"ucx\"", new: "product=\"migrator\""},
	{old: "product_name() == 'ucx'", new: "product_name() == 'migrator'"},
]

// Installed by 'ucdist install' before the toolkit installer runs.
dependencies: [
	{name: "databricks-sdk", constraint: ">=0.58.0,<0.59.0"},
	{name: "databricks-labs-lsql", constraint: ">=0.16.0,<0.17.0"},
	{name: "databricks-labs-blueprint", constraint: ">=0.11.0,<0.12.0"},
	{name: "PyYAML", constraint: ">=6.0.0,<6.1.0"},
	{name: "sqlglot", constraint: ">=26.7.0,<27.1.0"},
	{name: "astroid", constraint: ">=3.3.0,<3.4.0"},
]

expect: {
	// The upstream tree carries roughly 105 source files; anything much
	// smaller means staging or excludes went wrong.
	min_files: 100
}
`

// Package preflight provides readiness checks for the external programs and
// filesystem paths viflac depends on.
//
// The "viflac check" command runs RunAll and CheckSystemDeps and prints each
// result. The session itself does not run preflight; missing tools surface as
// external tool errors at the stage that needs them.
package preflight

// Package datasource holds the value objects shared by the locator: provider
// identity, caller-owned definitions, relation paths and the error taxonomy.
//
// Error kinds:
//   - ErrInvalidArgument: empty or malformed required input
//   - ErrPluginLoad: a module or provider type in a plugin folder failed to load
//   - ErrAmbiguousPlugin: two or more providers share a name in one folder
//   - ErrUnknownMember: a relation path segment is absent from the reached shape
//
// A missing plugin folder and a null value met during traversal are expected
// states and are reported as empty results, never as errors.
package datasource

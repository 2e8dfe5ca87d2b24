// Package inbox imports findings written as files by research tools.
//
// A producer that cannot call the store directly drops a .json, .yaml or .yml
// file into a directory. DecodeFile reads it, Importer stores every finding it
// holds through the research service, and Watcher does the same for files
// appearing in a watched directory.
package inbox

// Package integrity remembers the SHA-256 of every downloaded package
// so a later run can tell when the marketplace served different bytes
// under the same file name.
//
// The record is a flat mapping of file name to hex digest. Writing a
// name overwrites its previous digest and no history is kept.
//
// [JSONFile] keeps the record in a pretty-printed JSON object that is
// read and rewritten wholesale. Two processes updating the same file at
// once can lose one of the updates; the last writer wins.
package integrity

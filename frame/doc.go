// Package frame splits a streamed tool output into JSON documents.
//
// The tool writes zero or more progress documents, each terminated by a NUL
// byte, followed by one undelimited final result. A long operation may run
// several progress phases back to back (fetch, then link); each phase ends
// with a document whose "finished" field is true.
//
// [Decoder] is fed chunks exactly as they arrive from the stream and never
// blocks; chunk boundaries may fall anywhere, including inside a document.
package frame

// Package patterns holds the regular expressions and keyword tables used to
// read job-application mail. Everything here is compiled once at init and
// only ever read afterwards.
package patterns

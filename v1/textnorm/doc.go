// Package textnorm provides the text folding shared by the document-store and
// external-service compilers, so both sides normalize titles the same way.
package textnorm

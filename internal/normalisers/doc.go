// Package normalisers cleans document text before it is stored. Each
// sub-package handles one source format; Registry picks between them.
package normalisers

//go:build !mupdf

package toc

func registerOptional(*Registry) {}

// Package export rasterizes the whiteboard scene to PNG.
//
// Primitives are painted in scene order over the background color: strokes
// as round-capped polylines, shapes as outlines with optional fill, and text
// with the Go Regular face at each block's font size. Unknown colors fall
// back to black so AI-supplied color tokens never break an export.
//
// Example Usage:
//
//	exporter, err := export.NewExporter()
//	img, err := exporter.Export(ctx, board.Scene())
//	c.Header("Content-Disposition", "attachment; filename="+img.Filename)
//	c.Data(http.StatusOK, img.MIME, img.Data)
package export

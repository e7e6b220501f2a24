// Package imaging implements the image transform pipeline behind the MCP
// tools: format resolution, geometry planning, tonal filters, circular
// masking, watermark compositing, placeholder and favicon generation, and
// palette extraction.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Crop
// rectangles are given as origin plus size; the origin is inclusive.
//
// # Pipeline Order
//
// Process applies its stages in a fixed order:
//
//  1. geometry (Plan, ApplyPlan)
//  2. tonal filters (ApplyAdjustments)
//  3. circle mask (CircleMask), forcing png output
//  4. watermark (ApplyWatermark)
//  5. encoding (Encode)
//
// # Thread Safety
//
// Nothing in this package holds mutable state between calls. Every operation
// allocates its own output, so concurrent calls on the same source are safe
// as long as the caller does not mutate the source image.
//
// # Error Handling
//
// Failures are *imgerr.Error values; use imgerr.KindOf to classify them.
package imaging

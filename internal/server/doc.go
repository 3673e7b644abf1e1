// Package server implements the MCP (Model Context Protocol) server for
// progressive kernel growth.
//
// This package provides a JSON-RPC 2.0 server that exposes scene-text mask
// post-processing through the MCP protocol, so an MCP client can turn the
// kernel masks predicted by a segmentation network into labelled text
// regions.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Kernel Growth:
//   - pse_grow: Flat 0/1 buffer of shape [kernels, height, width] to labels
//   - pse_grow_scores: Same, from probability maps and a threshold
//   - pse_grow_images: One mask image per kernel to labels (and an image)
//
// Inspection:
//   - pse_render_labels: Label grid to a colored PNG or WebP
//   - pse_load_mask: Size and foreground count of a binarized mask image
//   - pse_kernel_rates: Shrink rate of each kernel in a stack
//
// # Kernel Order
//
// Buffers and path lists are ordered largest kernel first. The last kernel
// is the seed where regions are discovered.
//
// # Limits
//
// Requests whose planes exceed the configured max-pixels are rejected
// before any growth runs, which bounds the time a single call can take.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server

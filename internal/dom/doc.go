// Package dom removes a single unwanted text element from an HTML
// document. The element is located with a primary CSS selector and, when
// that finds nothing, with a "paragraph containing a phrase" fallback.
// Lookups go through a Locator chosen once from the capabilities of the
// selector compiler.
package dom

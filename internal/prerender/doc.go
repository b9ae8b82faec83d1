// Package prerender renders short timeline segments into cached files for
// smooth preview playback. A single clip is trimmed and retimed directly;
// several clips are joined in one filter graph. Rendered segments are indexed
// in the history store by a fingerprint of their inputs so an unchanged
// segment is not rendered twice.
package prerender

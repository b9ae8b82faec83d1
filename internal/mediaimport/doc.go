// Package mediaimport inspects source videos for the media library and
// prepares their preview assets: a JPEG thumbnail and a low-resolution proxy.
// Asset failures never fail an import; the item is returned without them.
package mediaimport

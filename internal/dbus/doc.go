// Package dbus implements the org.freedesktop.Notifications D-Bus interface.
// It provides a server that receives notifications from applications and
// exposes methods for GetCapabilities, Notify, CloseNotification, and
// GetServerInformation per the freedesktop.org notification specification.
//
// The package also carries the private io.github.jmylchreest.notid.Control
// interface (and its CLI client) and a passive traffic monitor for running
// alongside another notification daemon.
package dbus

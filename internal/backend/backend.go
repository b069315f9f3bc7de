// Package backend defines the interface the IPC object layer uses to drive
// a connectivity provider, independent of which provider it talks to.
// internal/connman is the only implementation today.
package backend

import (
	"github.com/luxoft/connectivity-managerd/internal/credentials"
	"github.com/luxoft/connectivity-managerd/internal/state"
)

// ConnectResult is the outcome of a WiFiConnect call.
type ConnectResult int

const (
	ConnectSuccess ConnectResult = iota
	ConnectFailed
)

// ConnectFinishedFunc reports the outcome of a WiFiConnect call. Called
// exactly once, eventually, for every WiFiConnect call.
type ConnectFinishedFunc func(result ConnectResult)

// RequestCredentialsReplyFunc must be called with the user's answer to a
// RequestCredentialsFunc invocation. A nil result means the request failed
// or was abandoned.
type RequestCredentialsReplyFunc func(result *credentials.Credentials)

// RequestCredentialsFunc asks a human for credentials needed to complete a
// connect, e.g. a Wi-Fi passphrase.
type RequestCredentialsFunc func(requested credentials.Requested, reply RequestCredentialsReplyFunc)

// Backend is the capability a connectivity provider adapter exposes to the
// IPC object layer. Every method is a request: the backend updates its
// Store asynchronously as it learns the outcome, rather than the method
// itself returning success/failure, except WiFiConnect which additionally
// takes explicit completion callbacks because Connect is the one operation
// clients block on waiting for a result.
//
// The IPC layer calls WiFiEnable/WiFiDisable/WiFiConnect/WiFiDisconnect/
// WiFiHotspot* only while Store().WiFiAvailable() is true, except
// WiFiHotspotDisable, which it forwards regardless; a backend implementation
// does nothing (or fails the connect) when Wi-Fi is unavailable.
type Backend interface {
	Store() *state.Store

	WiFiEnable()
	WiFiDisable()

	WiFiConnect(ap state.AccessPoint, finished ConnectFinishedFunc, requestCredentials RequestCredentialsFunc)
	WiFiDisconnect(ap state.AccessPoint)

	WiFiHotspotEnable()
	WiFiHotspotDisable()
	WiFiHotspotChangeSSID(ssid string)
	WiFiHotspotChangePassphrase(passphrase string)
}

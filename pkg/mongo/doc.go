// Package mongo wraps the official MongoDB driver with a retrying Connect
// helper and a health probe, used by the MongoDB-backed session store.
package mongo

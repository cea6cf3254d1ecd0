// Package connectors holds the sources that feed documents into the
// store from outside the request path: a watched drop folder and a
// Kafka topic of document changes.
package connectors

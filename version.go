package chatflow

// Version is the chatflow release, reported by the CLI and the HTTP /info endpoint.
const Version = "0.3.0"

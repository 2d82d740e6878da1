// Package cli provides the interactive uniportal command-line client.
//
// It wires configuration, the local credential store, the API client, the
// auth services and the dashboard manager, then runs a REPL. On start the
// stored credential is verified; when it is accepted the dashboard of the
// user's role opens right away.
//
// Commands that need a dashboard print "Access Denied" when nobody is
// logged in. See runREPL for the command list.
package cli

// Package cli is the interactive wallet client.
//
// It wires the configuration, the chosen account storage (memory, local
// SQLite or a remote keystore), the wallet network and a REPL. A session
// starts with create or login and then pays for artifacts:
//
//	coinkeeper> login
//	coinkeeper 75c1209-dbcac5a6-e040977-64a52ae (remote)> tip artifact.json 0.5
//
// The REPL is started with App.Root and blocks until the user exits.
package cli

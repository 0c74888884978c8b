// Package connectors holds the SourceConnector implementations. Each
// subpackage knows how to list and fetch playbook items from one
// project-management service.
//
// clickup is the only connector today; the bootstrap in cmd/playbookbot
// builds it when a ClickUp token is configured.
package connectors

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

// IDArgs model
//
// This is used for reading a published object by its identifier.
type IDArgs struct {
	ID string `json:"id"`
}

// SchemaArgs model
//
// This is used for publishing a schema and is returned when reading one.
type SchemaArgs struct {
	ID     identifier.SchemaID `json:"id"`
	Schema *anoncreds.Schema   `json:"schema"`
}

// CredentialDefinitionArgs model
//
// This is used for publishing a credential definition and is returned when reading one.
type CredentialDefinitionArgs struct {
	ID                   identifier.CredDefID            `json:"id"`
	CredentialDefinition *anoncreds.CredentialDefinition `json:"credentialDefinition"`
}

// RevocationRegistryDefinitionArgs model
//
// This is used for publishing a revocation registry definition and is returned when reading one.
type RevocationRegistryDefinitionArgs struct {
	ID                           identifier.RevRegID                     `json:"id"`
	RevocationRegistryDefinition *anoncreds.RevocationRegistryDefinition `json:"revocationRegistryDefinition"`
}

// StatusListArgs model
//
// This is used for reading the status list of a registry at a time. Without a timestamp the latest list is
// returned.
type StatusListArgs struct {
	ID        string  `json:"id"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
}

// PublishStatusListArgs model
//
// This is used for publishing a status list.
type PublishStatusListArgs struct {
	StatusList *anoncreds.RevocationStatusList `json:"statusList"`
}

// StatusListResult model
//
// This is returned when reading a status list.
type StatusListResult struct {
	StatusList *anoncreds.RevocationStatusList `json:"statusList"`
}

// TimestampsResult model
//
// This is the publication history of a registry.
type TimestampsResult struct {
	ID         string   `json:"id"`
	Timestamps []uint64 `json:"timestamps"`
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anoncreds enables Go developers to issue, hold, present and verify anonymous credentials
// with revocation based on a cryptographic accumulator.
//
// Packages for end developer usage
//
// pkg/anoncreds/issuer: Publishes schemas, credential definitions and revocation registries, issues and revokes
// credentials.
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/issuer
//
// pkg/anoncreds/prover: Keeps link secrets and credentials, builds presentations with non-revocation proofs.
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/prover
//
// pkg/anoncreds/verifier: Requests and verifies presentations.
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/verifier
//
// pkg/anoncreds/ledger: The registry of published objects, local or remote (ledger/httpledger).
// Reference: https://pkg.go.dev/github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger
//
// cmd/anoncreds-registry: REST server exposing the registry and the tails files.
//
// Basic workflow
//
//      1) Open a ledger (ledger.New) or connect to a registry (httpledger.New).
//      2) Create the issuer, prover and verifier services passing a provider.
//      3) Issuer publishes a schema, a credential definition and a revocation registry.
//      4) Prover requests and stores credentials, then answers presentation requests.
//      5) Verifier checks the presentations against the ledger.
package anoncreds

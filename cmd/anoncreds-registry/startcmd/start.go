/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go-ext/component/storage/couchdb"
	"github.com/hyperledger/aries-framework-go-ext/component/storage/mongodb"
	"github.com/hyperledger/aries-framework-go-ext/component/storage/mysql"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storage/leveldb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller"
)

const (
	// api host flag.
	registryHostFlagName      = "api-host"
	registryHostEnvKey        = "ANONCREDS_REGISTRY_API_HOST"
	registryHostFlagShorthand = "a"
	registryHostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + registryHostEnvKey

	// api token flag.
	registryTokenFlagName      = "api-token"
	registryTokenEnvKey        = "ANONCREDS_REGISTRY_API_TOKEN" // nolint:gosec
	registryTokenFlagShorthand = "t"
	registryTokenFlagUsage     = "Check for bearer token in the authorization header of publications (optional)." +
		" Lookups and tails downloads stay open." +
		" Alternatively, this can be set with the following environment variable: " + registryTokenEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "ANONCREDS_REGISTRY_DATABASE_TYPE"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database holding the ledger and the tails files. " +
		"Supported options: mem, leveldb, couchdb, mysql, mongodb. " +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databaseURLFlagName      = "database-url"
	databaseURLEnvKey        = "ANONCREDS_REGISTRY_DATABASE_URL"
	databaseURLFlagShorthand = "v"
	databaseURLFlagUsage     = "The URL of the database. For leveldb this is the database directory." +
		" Not needed if using memstore. For CouchDB, include the username:password@ text if required." +
		" Alternatively, this can be set with the following environment variable: " + databaseURLEnvKey

	databasePrefixFlagName      = "database-prefix"
	databasePrefixEnvKey        = "ANONCREDS_REGISTRY_DATABASE_PREFIX"
	databasePrefixFlagShorthand = "u"
	databasePrefixFlagUsage     = "An optional prefix to be used when creating and retrieving underlying databases. " +
		" Alternatively, this can be set with the following environment variable: " + databasePrefixEnvKey

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: " + databaseTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + databaseTimeoutEnvKey
	databaseTimeoutEnvKey  = "ANONCREDS_REGISTRY_DATABASE_TIMEOUT"
	databaseTimeoutDefault = "30"

	// status list cache flag.
	cacheSizeFlagName  = "status-list-cache-size"
	cacheSizeEnvKey    = "ANONCREDS_REGISTRY_STATUS_LIST_CACHE_SIZE"
	cacheSizeFlagUsage = "Number of status lists kept in memory. Defaults to 256 if not set." +
		" Alternatively, this can be set with the following environment variable: " + cacheSizeEnvKey

	// read only flag.
	readOnlyFlagName  = "read-only"
	readOnlyEnvKey    = "ANONCREDS_REGISTRY_READ_ONLY"
	readOnlyFlagUsage = "Serve lookups only and reject publications." +
		" Possible values [true] [false]. Defaults to false if not set." +
		" Alternatively, this can be set with the following environment variable: " + readOnlyEnvKey

	// log level.
	registryLogLevelFlagName  = "log-level"
	registryLogLevelEnvKey    = "ANONCREDS_REGISTRY_LOG_LEVEL"
	registryLogLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + registryLogLevelEnvKey

	registryTLSCertFileFlagName      = "tls-cert-file"
	registryTLSCertFileEnvKey        = "TLS_CERT_FILE"
	registryTLSCertFileFlagShorthand = "c"
	registryTLSCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + registryTLSCertFileEnvKey

	registryTLSKeyFileFlagName      = "tls-key-file"
	registryTLSKeyFileEnvKey        = "TLS_KEY_FILE"
	registryTLSKeyFileFlagShorthand = "k"
	registryTLSKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + registryTLSKeyFileEnvKey

	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"
	databaseTypeCouchDBOption = "couchdb"
	databaseTypeMYSQLDBOption = "mysql"
	databaseTypeMongoDBOption = "mongodb"
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("aries-framework/anoncreds-registry")
)

type registryParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	readOnly                bool
	cacheSize               int
	dbParam                 *dbParam
}

type dbParam struct {
	dbType  string
	url     string
	prefix  string
	timeout uint64
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(url, prefix string) (storage.Provider, error){
	databaseTypeMemOption: func(_, _ string) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	databaseTypeLevelDBOption: func(path, _ string) (storage.Provider, error) { // nolint:unparam
		return leveldb.NewProvider(path), nil
	},
	databaseTypeCouchDBOption: func(url, prefix string) (storage.Provider, error) {
		return couchdb.NewProvider(url, couchdb.WithDBPrefix(prefix))
	},
	databaseTypeMYSQLDBOption: func(url, prefix string) (storage.Provider, error) {
		return mysql.NewProvider(url, mysql.WithDBPrefix(prefix))
	},
	databaseTypeMongoDBOption: func(url, prefix string) (storage.Provider, error) {
		return mongodb.NewProvider(url, mongodb.WithDBPrefix(prefix))
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router) // nolint:gosec
}

// registryContext provides the services of the registry controller.
type registryContext struct {
	ledger  ledger.Registry
	storage storage.Provider
}

func (c *registryContext) Ledger() ledger.Registry {
	return c.ledger
}

func (c *registryContext) StorageProvider() storage.Provider {
	return c.storage
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a registry",
		Long:  `Start an anoncreds registry serving ledger objects and tails files`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getRegistryParameters(cmd, server)
			if err != nil {
				return err
			}

			return startRegistry(parameters)
		},
	}
}

func getRegistryParameters(cmd *cobra.Command, server server) (*registryParameters, error) {
	// log level
	logLevel, err := getUserSetVar(cmd, registryLogLevelFlagName, registryLogLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	err = setLogLevel(logLevel)
	if err != nil {
		return nil, err
	}

	host, err := getUserSetVar(cmd, registryHostFlagName, registryHostEnvKey, false)
	if err != nil {
		return nil, err
	}

	token, err := getUserSetVar(cmd, registryTokenFlagName, registryTokenEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbParam, err := getDBParam(cmd)
	if err != nil {
		return nil, err
	}

	readOnly, err := getBoolValue(cmd, readOnlyFlagName, readOnlyEnvKey)
	if err != nil {
		return nil, err
	}

	cacheSize, err := getCacheSize(cmd)
	if err != nil {
		return nil, err
	}

	tlsCertFile, err := getUserSetVar(cmd, registryTLSCertFileFlagName, registryTLSCertFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	tlsKeyFile, err := getUserSetVar(cmd, registryTLSKeyFileFlagName, registryTLSKeyFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	return &registryParameters{
		server:      server,
		host:        host,
		token:       token,
		dbParam:     dbParam,
		readOnly:    readOnly,
		cacheSize:   cacheSize,
		tlsCertFile: tlsCertFile,
		tlsKeyFile:  tlsKeyFile,
	}, nil
}

func getDBParam(cmd *cobra.Command) (*dbParam, error) {
	dbParam := &dbParam{}

	var err error

	dbParam.dbType, err = getUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, false)
	if err != nil {
		return nil, err
	}

	dbParam.url, err = getUserSetVar(cmd, databaseURLFlagName, databaseURLEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbParam.prefix, err = getUserSetVar(cmd, databasePrefixFlagName, databasePrefixEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbTimeout, err := getUserSetVar(cmd, databaseTimeoutFlagName, databaseTimeoutEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbTimeout == "" || dbTimeout == "0" {
		dbTimeout = databaseTimeoutDefault
	}

	t, err := strconv.Atoi(dbTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", dbTimeout, err)
	}

	dbParam.timeout = uint64(t)

	return dbParam, nil
}

func getBoolValue(cmd *cobra.Command, flagName, envKey string) (bool, error) {
	v, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return false, err
	}

	if v == "" {
		return false, nil
	}

	return strconv.ParseBool(v)
}

func getCacheSize(cmd *cobra.Command) (int, error) {
	v, err := getUserSetVar(cmd, cacheSizeFlagName, cacheSizeEnvKey, true)
	if err != nil {
		return 0, err
	}

	if v == "" {
		return 0, nil
	}

	size, err := strconv.Atoi(v)
	if err != nil || size <= 0 {
		return 0, fmt.Errorf("invalid status list cache size %q", v)
	}

	return size, nil
}

func createFlags(startCmd *cobra.Command) {
	// registry host flag
	startCmd.Flags().StringP(registryHostFlagName, registryHostFlagShorthand, "", registryHostFlagUsage)

	// registry token flag
	startCmd.Flags().StringP(registryTokenFlagName, registryTokenFlagShorthand, "", registryTokenFlagUsage)

	// db type
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)

	// db url
	startCmd.Flags().StringP(databaseURLFlagName, databaseURLFlagShorthand, "", databaseURLFlagUsage)

	// db prefix
	startCmd.Flags().StringP(databasePrefixFlagName, databasePrefixFlagShorthand, "", databasePrefixFlagUsage)

	// db timeout
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)

	// status list cache size
	startCmd.Flags().StringP(cacheSizeFlagName, "", "", cacheSizeFlagUsage)

	// read only
	startCmd.Flags().StringP(readOnlyFlagName, "", "", readOnlyFlagUsage)

	// log level
	startCmd.Flags().StringP(registryLogLevelFlagName, "", "", registryLogLevelFlagUsage)

	// tls cert file
	startCmd.Flags().StringP(registryTLSCertFileFlagName,
		registryTLSCertFileFlagShorthand, "", registryTLSCertFileFlagUsage)

	// tls key file
	startCmd.Flags().StringP(registryTLSKeyFileFlagName,
		registryTLSKeyFileFlagShorthand, "", registryTLSKeyFileFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

// authorizationMiddleware guards every request that is not a lookup.
func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead ||
				validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func startRegistry(parameters *registryParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	handler, err := createHandler(parameters)
	if err != nil {
		return err
	}

	logger.Infof("Starting anoncreds registry on host [%s]", parameters.host)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start anoncreds registry on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

func createHandler(parameters *registryParameters) (http.Handler, error) {
	ctx, err := createRegistryContext(parameters)
	if err != nil {
		return nil, err
	}

	var opts []controller.Opt
	if parameters.readOnly {
		opts = append(opts, controller.WithReadOnly())
	}

	// get all HTTP REST API handlers available for controller API
	handlers, err := controller.GetRESTHandlers(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start anoncreds registry on port [%s], failed to get rest service api :  %w",
			parameters.host, err)
	}

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	return cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router), nil
}

func createRegistryContext(parameters *registryParameters) (*registryContext, error) {
	store, err := createStoreProvider(parameters)
	if err != nil {
		return nil, err
	}

	var opts []ledger.Opt
	if parameters.cacheSize > 0 {
		opts = append(opts, ledger.WithCacheSize(parameters.cacheSize))
	}

	l, err := ledger.New(store, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger : %w", err)
	}

	return &registryContext{ledger: l, storage: store}, nil
}

func createStoreProvider(parameters *registryParameters) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[parameters.dbParam.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			store, openErr = provider(parameters.dbParam.url, parameters.dbParam.prefix)
			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), parameters.dbParam.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to connect to storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage at %s : %w", parameters.dbParam.url, err)
	}

	return store, nil
}

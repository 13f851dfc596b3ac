package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// ServeTestSuite provides testify/suite for proper test isolation
type ServeTestSuite struct {
	suite.Suite
	originalFlags struct {
		serveName       string
		serveConfigPath string
		serveDuration   time.Duration
		serveBrightness uint8
		serveEvents     bool
		serveVerbose    bool
	}
}

// SetupSuite runs once before all tests in the suite
func (suite *ServeTestSuite) SetupSuite() {
	suite.originalFlags.serveName = serveName
	suite.originalFlags.serveConfigPath = serveConfigPath
	suite.originalFlags.serveDuration = serveDuration
	suite.originalFlags.serveBrightness = serveBrightness
	suite.originalFlags.serveEvents = serveEvents
	suite.originalFlags.serveVerbose = serveVerbose
}

// TearDownSuite runs once after all tests in the suite
func (suite *ServeTestSuite) TearDownSuite() {
	serveName = suite.originalFlags.serveName
	serveConfigPath = suite.originalFlags.serveConfigPath
	serveDuration = suite.originalFlags.serveDuration
	serveBrightness = suite.originalFlags.serveBrightness
	serveEvents = suite.originalFlags.serveEvents
	serveVerbose = suite.originalFlags.serveVerbose
}

// SetupTest runs before each test in the suite
func (suite *ServeTestSuite) SetupTest() {
	serveName = ""
	serveConfigPath = ""
	serveDuration = 0
	serveBrightness = 0
	serveEvents = false
	serveVerbose = false
}

func (suite *ServeTestSuite) TestLoadServeConfig_Defaults() {
	// GOAL: Verify config resolution with no file and no flag overrides
	//
	// TEST SCENARIO: No --config, no flags -> built-in defaults returned

	cfg, err := loadServeConfig(serveCmd)
	suite.Require().NoError(err)
	suite.Equal("BLE_TESTER", cfg.Name)
	suite.Equal(uint8(127), cfg.Brightness)
}

func (suite *ServeTestSuite) TestLoadServeConfig_FlagOverridesName() {
	// GOAL: Verify an explicit --name flag wins over the config default
	//
	// TEST SCENARIO: Set --name via flag parsing -> returned config carries it

	suite.Require().NoError(serveCmd.Flags().Set("name", "RIG_42"))
	defer func() {
		suite.Require().NoError(serveCmd.Flags().Set("name", ""))
		serveCmd.Flags().Lookup("name").Changed = false
	}()

	cfg, err := loadServeConfig(serveCmd)
	suite.Require().NoError(err)
	suite.Equal("RIG_42", cfg.Name)
}

func (suite *ServeTestSuite) TestLoadServeConfig_FromFile() {
	// GOAL: Verify --config file values are loaded and validated
	//
	// TEST SCENARIO: Valid YAML file -> values applied over defaults

	path := filepath.Join(suite.T().TempDir(), "cfg.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("name: FROM_FILE\n"), 0o644))
	serveConfigPath = path

	cfg, err := loadServeConfig(serveCmd)
	suite.Require().NoError(err)
	suite.Equal("FROM_FILE", cfg.Name)
}

func (suite *ServeTestSuite) TestLoadServeConfig_InvalidFile() {
	// GOAL: Verify a broken config file surfaces as a command error
	//
	// TEST SCENARIO: Unparseable YAML -> error, no partially applied config

	path := filepath.Join(suite.T().TempDir(), "cfg.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(":\nnot yaml::"), 0o644))
	serveConfigPath = path

	_, err := loadServeConfig(serveCmd)
	suite.Error(err)
}

func TestServeTestSuite(t *testing.T) {
	suite.Run(t, new(ServeTestSuite))
}

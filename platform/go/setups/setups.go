// Package setups resolves process-level external credentials at startup.
package setups

import (
	"log"
	"os"
)

const (
	DevCredentialsPathEnv = "FIREBASE_CONFIG"
	DevProjectEnv         = "GCLOUD_PROJECT"
)

var DevFirebasePath *string

func init() {
	devFirebasePathTmp, found := os.LookupEnv(DevCredentialsPathEnv)
	if found {
		DevFirebasePath = &devFirebasePathTmp
		log.Printf("Loading credentials at [%s]", *DevFirebasePath)
	} else {
		DevFirebasePath = nil
	}
}

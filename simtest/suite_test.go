// Package simtest exercises Photon Transport end-to-end: two in-process
// Managers exchange wire bytes directly over an in-memory link (no real
// socket), driving the full SPEC -> blast -> sweep -> COMPLETE lifecycle
// the way two real hosts would see it.
package simtest

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSimtest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Photon Transport Simulation Suite")
}

// Package transporttest provides test doubles and compliance suites for
// [condarun.Transport] implementations.
//
// [Fake] is a scripted Transport for testing code built on top of the
// contract (the conda facade, for instance). [RunTransportTests] checks the
// behavioral contract every real transport honours.
//
// Example usage in a transport test file:
//
//	func TestCompliance(t *testing.T) {
//	    transporttest.RunTransportTests(t, func(t *testing.T) condarun.Transport {
//	        return mytransport.New(startBackend(t))
//	    })
//	}
package transporttest

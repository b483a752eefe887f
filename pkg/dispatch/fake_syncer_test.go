package dispatch

import "github.com/lsyncgo/lsyncgo/pkg/syncinvoker"

// fakeSyncer is a deterministic Syncer for tests: it returns queued results
// in call order and records every (src, dst, recursive) invocation.
type fakeSyncer struct {
	results []syncinvoker.Result
	calls   []syncCall
}

type syncCall struct {
	Src, Dst  string
	Recursive bool
}

func (f *fakeSyncer) Invoke(src, dst string, recursive bool) (syncinvoker.Result, error) {
	f.calls = append(f.calls, syncCall{src, dst, recursive})
	if len(f.results) == 0 {
		return syncinvoker.ResultOK, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

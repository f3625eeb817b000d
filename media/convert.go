// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"errors"
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/cnotch/rpukit/av/hevc"
	"github.com/cnotch/rpukit/av/rpu"
	"github.com/cnotch/rpukit/config"
)

// ErrNoRPUFound 输入中没有 RPU NAL
var ErrNoRPUFound = errors.New("no rpu found in input")

type convertJob struct {
	index   int
	payload []byte
}

// ConvertPayloads 并行把载荷序列转换到目标档次。
// 任务按载荷分派到 workers 个工作者，输出顺序与输入一致；
// 任何一个载荷失败都使整体失败，返回序号最小的错误。
func ConvertPayloads(payloads [][]byte, target rpu.Profile, workers int) ([][]byte, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(payloads) {
		workers = len(payloads)
	}

	results := make([][]byte, len(payloads))
	errs := make([]error, len(payloads))

	jobs := make(chan convertJob)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				results[job.index], errs[job.index] = convertOne(job.payload, target)
			}
		}()
	}

	for i, payload := range payloads {
		jobs <- convertJob{index: i, payload: payload}
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("rpu #%d: %w", i, err)
		}
	}
	return results, nil
}

func convertOne(payload []byte, target rpu.Profile) ([]byte, error) {
	r, err := rpu.Decode(payload)
	if err != nil {
		return nil, err
	}
	if err := rpu.Convert(r, target); err != nil {
		return nil, err
	}
	return r.Encode()
}

// ConvertFile 提取 AnnexB 文件中的全部 RPU，
// 转换到目标档次后重新封装写出。
func ConvertFile(srcPath, dstPath string, target rpu.Profile) error {
	data, err := ioutil.ReadFile(srcPath)
	if err != nil {
		return err
	}

	payloads := hevc.ExtractRPUs(data)
	if len(payloads) == 0 {
		return ErrNoRPUFound
	}

	converted, err := ConvertPayloads(payloads, target, config.ConvertWorkers())
	if err != nil {
		return err
	}

	out := make([]byte, 0, len(data))
	for _, payload := range converted {
		out = append(out, hevc.WrapRPU(payload)...)
	}
	return ioutil.WriteFile(dstPath, out, 0644)
}

package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxFanOut 同时访问的副本数上限
const maxFanOut = 16

// fanOut 对每个副本地址并行执行 fn，返回执行成功的地址（保持输入顺序）
// 单个副本失败不会取消其他副本，便于调用方精确回滚：
// 错误按地址收集到 failed，goroutine 本身总是返回 nil，errgroup 只负责限制并发和等待
func fanOut(ctx context.Context, addrs []string, fn func(ctx context.Context, addr string) error) ([]string, map[string]error) {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		ok     = make([]bool, len(addrs))
		failed = make(map[string]error)
	)
	g.SetLimit(maxFanOut)

	for i, addr := range addrs {
		g.Go(func() error {
			err := fn(ctx, addr)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[addr] = err
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	succeeded := make([]string, 0, len(addrs))
	for i, addr := range addrs {
		if ok[i] {
			succeeded = append(succeeded, addr)
		}
	}
	return succeeded, failed
}

// firstError 按地址顺序取第一个错误，保证错误信息确定
func firstError(addrs []string, failed map[string]error) (string, error) {
	for _, addr := range addrs {
		if err, ok := failed[addr]; ok {
			return addr, err
		}
	}
	return "", nil
}

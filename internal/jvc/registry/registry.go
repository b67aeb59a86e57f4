// Package registry 维护卷的副本成员及其模式
package registry

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"

	"github.com/jimyag/jvc/internal/jvc/entity"
)

var (
	// ErrExists 地址已注册
	ErrExists = errors.New("replica already exists")
	// ErrNotFound 地址未注册
	ErrNotFound = errors.New("replica not found")
	// ErrInvalidTransition 不允许的模式变更
	ErrInvalidTransition = errors.New("invalid replica mode transition")
)

// ValidateAddress 校验 host:port 格式的副本地址
func ValidateAddress(address string) error {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid replica address %q: %w", address, err)
	}
	if host == "" {
		return fmt.Errorf("invalid replica address %q: missing host", address)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid replica address %q: bad port", address)
	}
	return nil
}

// CanTransition 判断副本模式能否从 from 变更到 to
// RW 只能通过重建校验到达，这里不允许
func CanTransition(from, to entity.ReplicaMode) bool {
	switch {
	case from == to:
		return true
	case to == entity.ReplicaModeERR:
		return true
	case from == entity.ReplicaModeERR && to == entity.ReplicaModeWO:
		return true
	}
	return false
}

// Registry 副本注册表，并发安全
type Registry struct {
	mu       sync.RWMutex
	replicas map[string]entity.ControllerReplica
}

// New 创建空的注册表
func New() *Registry {
	return &Registry{
		replicas: make(map[string]entity.ControllerReplica),
	}
}

// Add 注册副本
func (r *Registry) Add(replica entity.ControllerReplica) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr := replica.Address.Address
	if _, ok := r.replicas[addr]; ok {
		return fmt.Errorf("%s: %w", addr, ErrExists)
	}
	r.replicas[addr] = replica
	return nil
}

// Get 获取副本
func (r *Registry) Get(address string) (entity.ControllerReplica, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	replica, ok := r.replicas[address]
	return replica, ok
}

// SetMode 按变更规则修改副本模式
func (r *Registry) SetMode(address string, mode entity.ReplicaMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	replica, ok := r.replicas[address]
	if !ok {
		return fmt.Errorf("%s: %w", address, ErrNotFound)
	}
	if !CanTransition(replica.Mode, mode) {
		return fmt.Errorf("%s %s -> %s: %w", address, replica.Mode, mode, ErrInvalidTransition)
	}
	replica.Mode = mode
	r.replicas[address] = replica
	return nil
}

// Promote 将 WO 副本置为 RW，只有重建校验成功后调用
func (r *Registry) Promote(address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	replica, ok := r.replicas[address]
	if !ok {
		return fmt.Errorf("%s: %w", address, ErrNotFound)
	}
	if replica.Mode != entity.ReplicaModeWO {
		return fmt.Errorf("promote %s %s: %w", address, replica.Mode, ErrInvalidTransition)
	}
	replica.Mode = entity.ReplicaModeRW
	r.replicas[address] = replica
	return nil
}

// Update 覆盖副本信息（模式需满足变更规则）
func (r *Registry) Update(replica entity.ControllerReplica) (entity.ControllerReplica, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr := replica.Address.Address
	current, ok := r.replicas[addr]
	if !ok {
		return entity.ControllerReplica{}, fmt.Errorf("%s: %w", addr, ErrNotFound)
	}
	if !CanTransition(current.Mode, replica.Mode) {
		return entity.ControllerReplica{}, fmt.Errorf("%s %s -> %s: %w", addr, current.Mode, replica.Mode, ErrInvalidTransition)
	}
	if replica.Address.InstanceName == "" {
		replica.Address.InstanceName = current.Address.InstanceName
	}
	r.replicas[addr] = replica
	return replica, nil
}

// Remove 删除副本
func (r *Registry) Remove(address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.replicas[address]; !ok {
		return fmt.Errorf("%s: %w", address, ErrNotFound)
	}
	delete(r.replicas, address)
	return nil
}

// Reset 清空注册表
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.replicas = make(map[string]entity.ControllerReplica)
}

// Len 副本数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.replicas)
}

// List 按地址排序返回全部副本
func (r *Registry) List() []entity.ControllerReplica {
	return r.filter(func(entity.ControllerReplica) bool { return true })
}

// Writable 按地址排序返回所有可写（非 ERR）副本
func (r *Registry) Writable() []entity.ControllerReplica {
	return r.filter(func(c entity.ControllerReplica) bool { return c.Mode.Writable() })
}

// ByMode 按地址排序返回指定模式的副本
func (r *Registry) ByMode(mode entity.ReplicaMode) []entity.ControllerReplica {
	return r.filter(func(c entity.ControllerReplica) bool { return c.Mode == mode })
}

// CountByMode 各模式的副本数量
func (r *Registry) CountByMode() map[entity.ReplicaMode]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[entity.ReplicaMode]int{
		entity.ReplicaModeWO:  0,
		entity.ReplicaModeRW:  0,
		entity.ReplicaModeERR: 0,
	}
	for _, c := range r.replicas {
		counts[c.Mode]++
	}
	return counts
}

func (r *Registry) filter(keep func(entity.ControllerReplica) bool) []entity.ControllerReplica {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.ControllerReplica, 0, len(r.replicas))
	for _, c := range r.replicas {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Address < out[j].Address.Address
	})
	return out
}

// Addresses 提取副本地址
func Addresses(replicas []entity.ControllerReplica) []string {
	out := make([]string, len(replicas))
	for i, c := range replicas {
		out[i] = c.Address.Address
	}
	return out
}

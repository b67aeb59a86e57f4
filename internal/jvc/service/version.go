package service

import (
	"context"

	"github.com/jimyag/jvc/internal/jvc/entity"
)

// 控制器与客户端、数据格式的兼容版本
const (
	CliAPIVersion           = 8
	CliAPIMinVersion        = 8
	ControllerAPIVersion    = 5
	ControllerAPIMinVersion = 3
	DataFormatVersion       = 1
	DataFormatMinVersion    = 1
)

// NewVersionOutput 由构建信息生成版本输出
func NewVersionOutput(version, gitCommit, buildDate string) *entity.VersionOutput {
	return &entity.VersionOutput{
		Version:                 version,
		GitCommit:               gitCommit,
		BuildDate:               buildDate,
		CliAPIVersion:           CliAPIVersion,
		CliAPIMinVersion:        CliAPIMinVersion,
		ControllerAPIVersion:    ControllerAPIVersion,
		ControllerAPIMinVersion: ControllerAPIMinVersion,
		DataFormatVersion:       DataFormatVersion,
		DataFormatMinVersion:    DataFormatMinVersion,
	}
}

// VersionService 返回启动时确定的版本信息
type VersionService struct {
	output entity.VersionOutput
}

// NewVersionService 创建 VersionService，output 在进程生命周期内不变
func NewVersionService(output *entity.VersionOutput) *VersionService {
	return &VersionService{output: *output}
}

// Get 版本详情
func (s *VersionService) Get(ctx context.Context) (*entity.VersionDetailGetReply, error) {
	output := s.output
	return &entity.VersionDetailGetReply{Version: &output}, nil
}

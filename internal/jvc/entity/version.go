package entity

// VersionOutput 版本与兼容性信息，启动时计算一次
type VersionOutput struct {
	Version                 string `json:"version"`
	GitCommit               string `json:"gitCommit"`
	BuildDate               string `json:"buildDate"`
	CliAPIVersion           int64  `json:"cliAPIVersion"`
	CliAPIMinVersion        int64  `json:"cliAPIMinVersion"`
	ControllerAPIVersion    int64  `json:"controllerAPIVersion"`
	ControllerAPIMinVersion int64  `json:"controllerAPIMinVersion"`
	DataFormatVersion       int64  `json:"dataFormatVersion"`
	DataFormatMinVersion    int64  `json:"dataFormatMinVersion"`
}

type VersionDetailGetReply struct {
	Version *VersionOutput `json:"version"`
}

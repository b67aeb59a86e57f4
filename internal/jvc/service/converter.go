package service

import (
	"sort"
	"time"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"github.com/jinzhu/copier"
)

// snapshotModelToEntity 将 model.Snapshot 转换为 entity.SnapshotInfo
func snapshotModelToEntity(m *model.Snapshot) (*entity.SnapshotInfo, error) {
	e := &entity.SnapshotInfo{}
	if err := copier.Copy(e, m); err != nil {
		return nil, err
	}

	// 处理时间字段
	e.Created = m.CreatedAt.UTC().Format(time.RFC3339)

	e.Labels = make(map[string]string, len(m.Labels))
	for _, l := range m.Labels {
		e.Labels[l.LabelKey] = l.LabelValue
	}

	return e, nil
}

// labelsToModel 将标签按 key 排序转换为 model.SnapshotLabel
func labelsToModel(labels map[string]string) []model.SnapshotLabel {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.SnapshotLabel, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.SnapshotLabel{
			LabelKey:   k,
			LabelValue: labels[k],
		})
	}
	return out
}

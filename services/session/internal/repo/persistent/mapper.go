package persistent

import (
	"starcast/services/session/internal/entity"
	"starcast/services/session/internal/model"
)

func ToSessionEntity(m *model.SessionModel) *entity.Session {
	if m == nil {
		return nil
	}
	return &entity.Session{
		ID:           m.ID,
		CreatorID:    m.CreatorID,
		Title:        m.Title,
		Caption:      m.Caption,
		PosterURL:    m.PosterURL,
		VideoURL:     m.VideoURL,
		Type:         entity.SessionType(m.Type),
		Genre:        m.Genre,
		Status:       entity.SessionStatus(m.Status),
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		ViewerCount:  m.ViewerCount,
		LikeCount:    m.LikeCount,
		CommentCount: m.CommentCount,
		CreatedAt:    m.CreatedAt,
	}
}

func ToSessionModel(e *entity.Session) *model.SessionModel {
	if e == nil {
		return nil
	}
	return &model.SessionModel{
		ID:           e.ID,
		CreatorID:    e.CreatorID,
		Title:        e.Title,
		Caption:      e.Caption,
		PosterURL:    e.PosterURL,
		VideoURL:     e.VideoURL,
		Type:         string(e.Type),
		Genre:        e.Genre,
		Status:       string(e.Status),
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		ViewerCount:  e.ViewerCount,
		LikeCount:    e.LikeCount,
		CommentCount: e.CommentCount,
		CreatedAt:    e.CreatedAt,
	}
}

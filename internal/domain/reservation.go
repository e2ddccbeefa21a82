package domain

import (
	"time"
)

// HR 对学员的临时预约记录，到期后由定时清理任务删除
type Reservation struct {
	ID                 string    `json:"id"`
	HRID               string    `json:"hrId"`
	StudentID          string    `json:"studentId"`
	ReservationEndDate time.Time `json:"reservationEndDate"`
	CreatedAt          time.Time `json:"createdAt"`
}

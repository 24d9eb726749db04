package wizard

import "testing"

func TestStore(t *testing.T) {
	st := NewStore()

	s := st.Create()
	if s.ID == "" {
		t.Fatal("会话应分配 ID")
	}
	if s.State != StateUpload {
		t.Errorf("初始状态 = %s, want %s", s.State, StateUpload)
	}

	got, err := st.Get(s.ID)
	if err != nil || got != s {
		t.Errorf("Get() = %v, %v", got, err)
	}

	st.Delete(s.ID)
	if _, err := st.Get(s.ID); err == nil {
		t.Error("删除后 Get() 应返回错误")
	}
}

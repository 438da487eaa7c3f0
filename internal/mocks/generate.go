package mocks

//go:generate mockery --name Adapter --srcpkg github.com/aevon-lab/aggcache/internal/cache --output ./cache --outpkg cachemocks --with-expecter
//go:generate mockery --name RecordSource --srcpkg github.com/aevon-lab/aggcache/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Refresher --srcpkg github.com/aevon-lab/aggcache/internal/backfill --output ./backfill --outpkg backfillmocks --with-expecter
//go:generate mockery --name RecordStore --srcpkg github.com/aevon-lab/aggcache/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
